package service

import (
	"context"
	"testing"

	"ticket_engine/constants"
	"ticket_engine/model"
	"ticket_engine/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestOrderLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res := env.reserve(t)
	checkout := env.checkout(t, res.OrderID)

	ack, err := env.webhooks().HandleCallback(ctx, env.callbackForm(checkout.MerchantTradeNo, "1", 1200))
	require.NoError(t, err)
	assert.Equal(t, "1|OK", ack)
	assert.Equal(t, model.OrderPaid, env.mustOrder(t, res.OrderID).Status)

	env.atDoors()
	receipt, err := env.redemptions().VerifyTicket(ctx, env.credential(res.OrderID), env.owner())
	require.NoError(t, err)
	assert.Equal(t, res.OrderNumber, receipt.OrderNumber)

	_, err = env.redemptions().VerifyTicket(ctx, env.credential(res.OrderID), env.owner())
	assert.Equal(t, constants.TICKET_ALREADY_USED, utils.CodeOf(err))

	gateway := &mockRefundGateway{}
	gateway.On("Refund", mock.Anything, mock.Anything).Return(&model.RefundResult{RtnCode: "1"}, nil)
	_, err = env.refunds(gateway).RefundOrder(ctx, res.OrderID, env.buyer)
	require.NoError(t, err)
	_, err = env.refunds(gateway).RefundOrder(ctx, res.OrderID, env.buyer)
	assert.Equal(t, constants.REFUND_NOT_ALLOWED, utils.CodeOf(err))
	gateway.AssertNumberOfCalls(t, "Refund", 1)

	_, err = env.redemptions().VerifyTicket(ctx, env.credential(res.OrderID), env.owner())
	assert.Equal(t, constants.INVALID_ORDER_STATUS, utils.CodeOf(err))

	ack, err = env.webhooks().HandleCallback(ctx, env.callbackForm(checkout.MerchantTradeNo, "1", 1200))
	require.NoError(t, err)
	assert.Equal(t, "1|OK", ack)
	assert.Equal(t, model.OrderRefunded, env.mustOrder(t, res.OrderID).Status)
	assert.Equal(t, model.PaymentRefunded, env.paymentsOf(t, res.OrderID)[0].Status)
}
