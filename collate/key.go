package collate

// FNV-1a hash/compare pairs for the object tables collate builds on top
// of internal/idtbl, grounded on collate.c's own addrhash/addrcmp,
// svchash/svccmp, chainhash/chaincmp and the FNV1A_OFFSET/FNV1A_PRIME
// constants it defines.
const (
	fnv1aOffset uint32 = 2166136261
	fnv1aPrime  uint32 = 16777619
)

func fnv1a(h uint32, b byte) uint32 {
	h ^= uint32(b)
	h *= fnv1aPrime
	return h
}

func fnv1aString(h uint32, s string) uint32 {
	for i := 0; i < len(s); i++ {
		h = fnv1a(h, s[i])
	}
	return h
}

func fnv1aBytes(h uint32, b []byte) uint32 {
	for _, c := range b {
		h = fnv1a(h, c)
	}
	return h
}

// foldSeed mixes a per-table seed into the initial hash state, matching
// the seed-folding collate.c performs before hashing an object's key so
// that distinct object tables built with distinct seeds don't collide
// on carefully-crafted adversarial input.
func foldSeed(seed uint32) uint32 {
	h := fnv1aOffset
	h = fnv1a(h, byte(seed))
	h = fnv1a(h, byte(seed>>8))
	h = fnv1a(h, byte(seed>>16))
	h = fnv1a(h, byte(seed>>24))
	return h
}

func hashAddr(h uint32, a Addr) uint32 {
	h = fnv1aBytes(h, a.IP)
	h = fnv1a(h, byte(a.Port))
	h = fnv1a(h, byte(a.Port>>8))
	return h
}

// addrHash and addrEqual make Addr usable as an idtbl.Table key.
func addrHash(obj any, seed uint32) uint32 {
	a := obj.(Addr)
	return hashAddr(foldSeed(seed), a)
}

func addrEqual(key, entry any) bool {
	return key.(Addr).Equal(entry.(Addr))
}

// nameHash and nameEqual intern plain strings (service/host names).
func nameHash(obj any, seed uint32) uint32 {
	return fnv1aString(foldSeed(seed), obj.(string))
}

func nameEqual(key, entry any) bool {
	return key.(string) == entry.(string)
}

// serviceKey is the lookup key used against the service object table:
// a (name, addr) pair. Services are compared and hashed by name and
// address only, matching svccmp -- every other Service field is value
// carried by the upsert, not part of its identity.
type serviceKey struct {
	Name string
	Addr Addr
}

// serviceHash computes a sequential FNV-1a hash over name, a literal
// NUL separator, and the address bytes -- the resolution decided for
// collate_service's composite key, in place of the original svchash,
// which XOR-combines separately seeded name and address hashes.
func serviceHash(obj any, seed uint32) uint32 {
	h := foldSeed(seed)
	switch v := obj.(type) {
	case serviceKey:
		h = fnv1aString(h, v.Name)
		h = fnv1a(h, 0)
		h = hashAddr(h, v.Addr)
	case *Service:
		h = fnv1aString(h, v.Name)
		h = fnv1a(h, 0)
		h = hashAddr(h, v.Addr)
	}
	return h
}

func serviceEqual(key, entry any) bool {
	svc := entry.(*Service)
	switch k := key.(type) {
	case serviceKey:
		return k.Name == svc.Name && k.Addr.Equal(svc.Addr)
	case *Service:
		return k.Name == svc.Name && k.Addr.Equal(svc.Addr)
	}
	return false
}

// chainHash and chainEqual key CertChain objects by their SHA-1 digest.
func chainHash(obj any, seed uint32) uint32 {
	h := foldSeed(seed)
	switch v := obj.(type) {
	case [20]byte:
		return fnv1aBytes(h, v[:])
	case *CertChain:
		return fnv1aBytes(h, v.SHA1[:])
	}
	return h
}

func chainEqual(key, entry any) bool {
	chain := entry.(*CertChain)
	switch k := key.(type) {
	case [20]byte:
		return k == chain.SHA1
	case *CertChain:
		return k.SHA1 == chain.SHA1
	}
	return false
}

// componentKey is the lookup key against the component object table: a
// (name, version) pair, matching component_register's dedup rule.
type componentKey struct {
	Name    string
	Version string
}

func componentHash(obj any, seed uint32) uint32 {
	h := foldSeed(seed)
	switch v := obj.(type) {
	case componentKey:
		h = fnv1aString(h, v.Name)
		h = fnv1a(h, 0)
		h = fnv1aString(h, v.Version)
	case *ComponentEntry:
		h = fnv1aString(h, v.Name)
		h = fnv1a(h, 0)
		h = fnv1aString(h, v.Version)
	}
	return h
}

func componentEqual(key, entry any) bool {
	c := entry.(*ComponentEntry)
	switch k := key.(type) {
	case componentKey:
		return k.Name == c.Name && k.Version == c.Version
	case *ComponentEntry:
		return k.Name == c.Name && k.Version == c.Version
	}
	return false
}
