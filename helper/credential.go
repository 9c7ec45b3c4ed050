package helper

import (
	"strings"

	"ticket_engine/constants"
	"ticket_engine/utils"
)

// BuildTicketCredential returns the text encoded in a ticket QR code.
func BuildTicketCredential(buyerID, orderID string) string {
	return strings.Join([]string{constants.TICKET_CREDENTIAL_PREFIX, buyerID, orderID}, "|")
}

// ParseTicketCredential splits a scanned credential into buyer and order ids.
func ParseTicketCredential(credential string) (buyerID, orderID string, err error) {
	parts := strings.Split(strings.TrimSpace(credential), "|")
	if len(parts) != 3 || parts[0] != constants.TICKET_CREDENTIAL_PREFIX {
		return "", "", utils.ValidationError(constants.INVALID_QR_FORMAT, "QR code is not a ticket credential")
	}
	if !utils.IsUUID(parts[1]) || !utils.IsUUID(parts[2]) {
		return "", "", utils.ValidationError(constants.INVALID_UUID_FORMAT, "ticket credential carries a malformed id")
	}
	return parts[1], parts[2], nil
}
