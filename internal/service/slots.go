package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/antonkudrin/profi-backend/internal/models"
)

// Времена хранятся строками фиксированного формата HH:MM:SS, поэтому
// сравнение интервалов выполняется лексикографически.

// normalizeTimeOfDay приводит HH:MM к полному формату HH:MM:SS.
func normalizeTimeOfDay(value string) string {
	if len(value) == 5 {
		return value + ":00"
	}
	return value
}

// calculateEndTime вычисляет конец интервала через арифметику минут дня.
// Переход через полночь заворачивается внутри тех же суток: запись
// остаётся на своей scheduled_date (23:30 + 45 минут даёт 00:15:00).
func calculateEndTime(start string, durationMinutes int) string {
	start = normalizeTimeOfDay(start)

	hour, _ := strconv.Atoi(start[0:2])
	minute, _ := strconv.Atoi(start[3:5])

	totalMinutes := hour*60 + minute + durationMinutes
	endHour := (totalMinutes / 60) % 24
	endMinute := totalMinutes % 60

	return fmt.Sprintf("%02d:%02d:00", endHour, endMinute)
}

// isSlotOccupied сообщает, пересекается ли предлагаемый полуоткрытый
// интервал [slotStart, slotEnd) с занятыми интервалами на дату date.
// Пересечение фиксируется в одном из трёх случаев:
//   - слот начинается внутри занятого интервала;
//   - слот заканчивается внутри занятого интервала;
//   - слот целиком накрывает занятый интервал.
//
// Границы полуоткрытые: слот, начинающийся ровно в конце занятого
// интервала, конфликтом не считается (записи впритык разрешены), а
// начинающийся ровно в его начале — считается.
func isSlotOccupied(occupied []models.OccupiedSlot, date, slotStart, slotEnd string) bool {
	slotStart = normalizeTimeOfDay(slotStart)
	slotEnd = normalizeTimeOfDay(slotEnd)

	for _, slot := range occupied {
		if formatDate(slot.Date) != date {
			continue
		}

		occupiedStart := normalizeTimeOfDay(slot.Start)
		occupiedEnd := normalizeTimeOfDay(slot.End)

		startsInside := slotStart >= occupiedStart && slotStart < occupiedEnd
		endsInside := slotEnd > occupiedStart && slotEnd <= occupiedEnd
		contains := slotStart <= occupiedStart && slotEnd >= occupiedEnd

		if startsInside || endsInside || contains {
			return true
		}
	}

	return false
}

// occupiedSlotsForDate отбирает занятые интервалы с точным совпадением даты.
func occupiedSlotsForDate(occupied []models.OccupiedSlot, date string) []models.OccupiedSlot {
	result := make([]models.OccupiedSlot, 0)
	for _, slot := range occupied {
		if formatDate(slot.Date) == date {
			result = append(result, slot)
		}
	}
	return result
}

// formatDate приводит дату к виду YYYY-MM-DD.
func formatDate(date time.Time) string {
	return date.Format("2006-01-02")
}

// trimTime отбрасывает секунды для человекочитаемых сообщений.
func trimTime(value string) string {
	if idx := strings.LastIndex(value, ":"); idx == 5 {
		return value[:5]
	}
	return value
}
