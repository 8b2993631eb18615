package fs

// HashName computes the AmigaDOS name hash (§4.3.2), used to index the
// hash table of a Root or UserDir block. Grounded on
// original_source/Core/FileSystems/FSObjects.cpp's FSString::hashValue.
func HashName(name string, intl bool) uint32 {
	result := uint32(len(name))
	for i := 0; i < len(name); i++ {
		result = (result*13 + uint32(upper(name[i], intl))) & 0x7FF
	}
	return result
}

// HashBucket returns the hash-table bucket index for name under the
// given hash table size.
func HashBucket(name string, intl bool, hashTableSize int) int {
	return int(HashName(name, intl)) % hashTableSize
}
