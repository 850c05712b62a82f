package models_test

import (
	"testing"
	"time"

	"github.com/dukex/dailygate/pkg/models"
	"github.com/stretchr/testify/assert"
)

func TestDailyCode_ValidFor(t *testing.T) {
	t.Parallel()

	code := &models.DailyCode{
		Code:     "ABCD2345",
		Identity: "admin",
		Date:     "2025-06-01",
		IssuedAt: time.Date(2025, 6, 1, 0, 1, 0, 0, time.UTC),
	}

	assert.True(t, code.ValidFor("2025-06-01"))
	assert.False(t, code.ValidFor("2025-06-02"), "codes never survive their date")
	assert.False(t, code.ValidFor("2025-05-31"))

	code.Used = true
	assert.False(t, code.ValidFor("2025-06-01"), "used codes are spent")
}
