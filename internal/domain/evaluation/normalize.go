package evaluation

import "encoding/json"

func DefaultPerformance() PerformanceData {
	return PerformanceData{
		MonthlyCuts:         make([]int, MonthsPerYear),
		ExcludedFromAverage: make([]bool, MonthsPerYear),
	}
}

// NormalizePerformance repairs p to the twelve-slot shape. A slice of the
// wrong length is replaced by zero/false slots; negative counts become 0.
func NormalizePerformance(p PerformanceData) PerformanceData {
	out := p.Clone()
	if len(out.MonthlyCuts) != MonthsPerYear {
		out.MonthlyCuts = make([]int, MonthsPerYear)
	}
	if len(out.ExcludedFromAverage) != MonthsPerYear {
		out.ExcludedFromAverage = make([]bool, MonthsPerYear)
	}
	for i, c := range out.MonthlyCuts {
		if c < 0 {
			out.MonthlyCuts[i] = 0
		}
	}
	if out.GoalCuts < 0 {
		out.GoalCuts = 0
	}
	if out.MonthlyHolidays < 0 {
		out.MonthlyHolidays = 0
	}
	return out
}

// metadataShape and recordShape defer performance decoding so one field
// of the wrong type cannot reject the whole record.
type metadataShape struct {
	Metadata
	Performance json.RawMessage `json:"performance"`
}

type recordShape struct {
	StoredRecord
	Metadata metadataShape `json:"metadata"`
}

// DecodeRecord parses a persisted record. Fields missing from older shapes
// keep their zero-value defaults; performance data is merged field by field
// over DefaultPerformance and then repaired.
func DecodeRecord(raw []byte) (StoredRecord, error) {
	var shape recordShape
	if err := json.Unmarshal(raw, &shape); err != nil {
		return StoredRecord{}, err
	}
	rec := shape.StoredRecord
	rec.Metadata = shape.Metadata.Metadata
	rec.Metadata.Performance = NormalizePerformance(decodePerformance(shape.Metadata.Performance))
	if rec.SchemaVersion == 0 {
		rec.SchemaVersion = LegacySchemaVersion
	}
	if rec.PerformanceScore == 0 {
		rec.PerformanceScore = BaselinePerformanceScore
	}
	return rec, nil
}

// decodePerformance takes every field of raw that parses and leaves the
// default in place for the rest.
func decodePerformance(raw json.RawMessage) PerformanceData {
	out := DefaultPerformance()
	var fields map[string]json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &fields) != nil {
		return out
	}
	decodeField(fields, "monthlyCuts", &out.MonthlyCuts)
	decodeField(fields, "excludedFromAverage", &out.ExcludedFromAverage)
	decodeField(fields, "goalCuts", &out.GoalCuts)
	decodeField(fields, "goalScore", &out.GoalScore)
	decodeField(fields, "monthlyHolidays", &out.MonthlyHolidays)
	return out
}

func decodeField[T any](fields map[string]json.RawMessage, name string, dst *T) {
	raw, ok := fields[name]
	if !ok {
		return
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return
	}
	*dst = v
}

func EncodeRecord(rec StoredRecord) ([]byte, error) {
	rec.SchemaVersion = CurrentSchemaVersion
	return json.Marshal(rec)
}
