package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/antonkudrin/profi-backend/internal/models"
)

func TestCalculateEndTime(t *testing.T) {
	cases := []struct {
		name     string
		start    string
		duration int
		want     string
	}{
		{"час без перехода", "09:00", 60, "10:00:00"},
		{"полный формат", "09:00:00", 90, "10:30:00"},
		{"минуты", "14:15", 45, "15:00:00"},
		{"переход через полночь", "23:30", 45, "00:15:00"},
		{"ровно полночь", "23:00", 60, "00:00:00"},
		{"длинная запись", "22:00", 180, "01:00:00"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, calculateEndTime(tc.start, tc.duration))
		})
	}
}

func TestIsSlotOccupied(t *testing.T) {
	date := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	occupied := []models.OccupiedSlot{
		{Date: date, Start: "09:00:00", End: "10:00:00"},
	}

	cases := []struct {
		name  string
		start string
		end   string
		want  bool
	}{
		{"слот начинается внутри занятого", "09:30:00", "10:30:00", true},
		{"слот заканчивается внутри занятого", "08:30:00", "09:30:00", true},
		{"слот целиком накрывает занятый", "08:00:00", "11:00:00", true},
		{"полное совпадение начала", "09:00:00", "09:30:00", true},
		{"слот внутри занятого", "09:15:00", "09:45:00", true},
		{"впритык после занятого", "10:00:00", "11:00:00", false},
		{"впритык до занятого", "08:00:00", "09:00:00", false},
		{"другое время", "12:00:00", "13:00:00", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, isSlotOccupied(occupied, "2026-09-01", tc.start, tc.end))
		})
	}
}

func TestIsSlotOccupied_OtherDate(t *testing.T) {
	occupied := []models.OccupiedSlot{
		{Date: time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), Start: "09:00:00", End: "10:00:00"},
	}

	assert.False(t, isSlotOccupied(occupied, "2026-09-02", "09:00:00", "10:00:00"))
}

func TestIsSlotOccupied_CancelledExcludedUpstream(t *testing.T) {
	// Отменённые записи не попадают в occupied: выборка активных записей
	// делается на уровне репозитория, пустой список значит свободно.
	assert.False(t, isSlotOccupied(nil, "2026-09-01", "09:00:00", "10:00:00"))
}

func TestNormalizeTimeOfDay(t *testing.T) {
	assert.Equal(t, "09:00:00", normalizeTimeOfDay("09:00"))
	assert.Equal(t, "09:00:30", normalizeTimeOfDay("09:00:30"))
}
