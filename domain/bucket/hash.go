// Package bucket implements deterministic visitor bucketing: a stable
// polynomial hash over identifiers and the variant assignment walk built on
// it. Everything here is pure; a visitor lands in the same bucket no matter
// which process evaluates the assignment.
package bucket

// Bucket maps an arbitrary string to a non-negative integer, uniformly
// enough for percentage bucketing. Rolling polynomial hash (h = h*31 + c)
// wrapped to 32 bits, then made non-negative. Determinism is load-bearing:
// the same input must produce the same value across processes and runs.
func Bucket(input string) int {
	var h int32
	for _, c := range input {
		h = h*31 + c
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return int(v)
}

// AllocationBucket returns the 0-99 bucket deciding whether a visitor is
// enrolled at all. Seeded independently from the variant bucket so that
// enrollment and variant choice are statistically independent.
func AllocationBucket(experimentID, identifier string) int {
	return Bucket(experimentID+"_allocation_"+identifier) % 100
}

// VariantBucket returns the 0-99 bucket used for the weighted variant walk.
func VariantBucket(experimentID, identifier string) int {
	return Bucket(experimentID+"_variant_"+identifier) % 100
}
