package constants

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessageFallbacks(t *testing.T) {
	assert.Equal(t, "Order not found", Message("en", ORDER_NOT_FOUND))
	assert.Equal(t, "Không tìm thấy đơn hàng", Message("vi", ORDER_NOT_FOUND))
	assert.Equal(t, "Order not found", Message("fr", ORDER_NOT_FOUND))
	assert.Equal(t, "NO_SUCH_KEY", Message("en", "NO_SUCH_KEY"))
}

func TestDeclineMessage(t *testing.T) {
	msg, known := DeclineMessage("en", "051")
	assert.True(t, known)
	assert.Equal(t, "Insufficient funds", msg)

	msg, known = DeclineMessage("vi", "777")
	assert.False(t, known)
	assert.Equal(t, "Giao dịch bị từ chối (mã %s)", msg)

	msg, known = DeclineMessage("xx", "33")
	assert.True(t, known)
	assert.Equal(t, "The card is not valid", msg)
}
