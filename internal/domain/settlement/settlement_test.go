package settlement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMethodIsValid(t *testing.T) {
	for _, m := range []Method{MethodUPI, MethodBankTransfer, MethodCard, MethodCash} {
		assert.True(t, m.IsValid(), string(m))
	}
	assert.False(t, Method("cheque").IsValid())
	assert.False(t, Method("").IsValid())
}

func TestPaymentLifecycle(t *testing.T) {
	p := &Payment{Status: PaymentPending}
	assert.False(t, p.IsSettled())

	now := time.Now()
	p.Complete(now)
	assert.Equal(t, PaymentCompleted, p.Status)
	assert.True(t, p.IsSettled())
	if assert.NotNil(t, p.PaidAt) {
		assert.Equal(t, now, *p.PaidAt)
	}

	failed := &Payment{Status: PaymentPending}
	failed.Fail()
	assert.Equal(t, PaymentFailed, failed.Status)
	assert.True(t, failed.IsSettled())
	assert.Nil(t, failed.PaidAt)
}
