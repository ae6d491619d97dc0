package cryptoprim

import (
	"crypto/rand"
	"io"
	"math/big"
)

// Group14Prime is the RFC 3526 MODP group-14 (2048-bit) prime.
var Group14Prime, _ = new(big.Int).SetString(""+
	"FFFFFFFFFFFFFFFFC90FDAA22168C234C4C6628B80DC1CD129024E088A67CC74"+
	"020BBEA63B139B22514A08798E3404DDEF9519B3CD3A431B302B0A6DF25F1437"+
	"4FE1356D6D51C245E485B576625E7EC6F44C42E9A637ED6B0BFF5CB6F406B7ED"+
	"EE386BFB5A899FA5AE9F24117C4B1FE649286651ECE45B3DC2007CB8A163BF05"+
	"98DA48361C55D39A69163FA8FD24CF5F83655D23DCA3AD961C62F356208552BB"+
	"9ED529077096966D670C354E4ABC9804F1746C08CA18217C32905E462E36CE3B"+
	"E39E772C180E86039B2783A2EC07A28FB5C55DF06F4C52C9DE2BCBF695581718"+
	"3995497CEA956AE515D2261898FA051015728E5A8AACAA68FFFFFFFFFFFFFFFF",
	16)

// Group14Generator is the MODP group-14 generator (g=2).
var Group14Generator = big.NewInt(2)

// DHGroup14Keypair generates an ephemeral DH private/public pair mapped into
// [2, p-2], regenerating e whenever e <= 1 or e >= p-1.
func DHGroup14Keypair(rnd io.Reader) (priv, pub *big.Int, err error) {
	// rand.Int(rnd, bound) samples uniformly from [0, bound-1]; bound =
	// p-3 maps that to [0, p-4], so x+2 lands in [2, p-2] inclusive.
	bound := new(big.Int).Sub(Group14Prime, big.NewInt(3))
	for {
		x, err := rand.Int(rnd, bound)
		if err != nil {
			return nil, nil, err
		}
		x.Add(x, big.NewInt(2)) // map into [2, p-2]

		e := new(big.Int).Exp(Group14Generator, x, Group14Prime)
		if e.Cmp(big.NewInt(1)) <= 0 {
			continue
		}
		pMinus1 := new(big.Int).Sub(Group14Prime, big.NewInt(1))
		if e.Cmp(pMinus1) >= 0 {
			continue
		}
		return x, e, nil
	}
}

// DHGroup14Shared computes f^x mod p.
func DHGroup14Shared(theirPublic, privateX *big.Int) *big.Int {
	return new(big.Int).Exp(theirPublic, privateX, Group14Prime)
}
