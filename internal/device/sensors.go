package device

import (
	"fmt"
	"strconv"
	"strings"

	"heat_controller/internal/models"
)

const sensorFields = 9 // 8 address bytes + weight

// EncodeSensors renders weights the way the firmware prints them: "a a a a a a a a w,...".
func EncodeSensors(sensors []models.SensorWeight) string {
	var b strings.Builder
	for i, s := range sensors {
		if i > 0 {
			b.WriteByte(',')
		}
		for _, a := range s.Address {
			b.WriteString(strconv.Itoa(int(a)))
			b.WriteByte(' ')
		}
		b.WriteString(strconv.Itoa(int(s.Weight)))
	}
	return b.String()
}

// ParseSensors reads the firmware sensor string. Any run of non-digits separates numbers,
// and every nine numbers form one sensor.
func ParseSensors(s string) ([]models.SensorWeight, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r < '0' || r > '9' })
	if len(fields)%sensorFields != 0 {
		return nil, fmt.Errorf("sensor string has %d numbers, want a multiple of %d", len(fields), sensorFields)
	}
	out := make([]models.SensorWeight, 0, len(fields)/sensorFields)
	for i := 0; i < len(fields); i += sensorFields {
		var sw models.SensorWeight
		for k := 0; k < sensorFields; k++ {
			v, err := strconv.ParseUint(fields[i+k], 10, 8)
			if err != nil {
				return nil, fmt.Errorf("sensor %d field %d: %w", i/sensorFields, k, err)
			}
			if k < 8 {
				sw.Address[k] = byte(v)
			} else {
				sw.Weight = uint8(v)
			}
		}
		out = append(out, sw)
	}
	return out, nil
}
