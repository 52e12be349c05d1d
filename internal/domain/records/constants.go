package records

const (
	// Namespace prefixes every key the engine owns; bulk export and import
	// never touch keys outside it.
	Namespace = "qb_"

	IndexKey        = Namespace + "staff_index_v1"
	RecordKeyPrefix = Namespace + "data_"
)

func RecordKey(id string) string {
	return RecordKeyPrefix + id
}
