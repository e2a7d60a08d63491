package shachain

// Producer is the sending side of the shachain scheme: the holder of the
// seed, who can compute the per-commitment secret for any commitment
// height on demand and has no need for compact storage since it always
// has the seed.
type Producer struct {
	seed Hash
}

// NewProducer wraps a freshly generated 32-byte seed. The seed is chosen
// once at channel creation and is never persisted anywhere the remote
// party, or anything but the key holder, can reach.
func NewProducer(seed [32]byte) *Producer {
	return &Producer{seed: Hash(seed)}
}

// AtHeight returns the per-commitment secret for the given commitment
// height, per BOLT-3's hash-tree construction over generationIndex(height).
// It returns a plain [32]byte, rather than the Hash type, so *Producer
// satisfies channeldb.ShachainProducer without channeldb importing this
// package.
func (p *Producer) AtHeight(commitHeight uint64) [32]byte {
	return [32]byte(deriveFromSeed(p.seed, generationIndex(commitHeight)))
}
