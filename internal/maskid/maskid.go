// Package maskid generates the pseudonymous ids shown to admins in place of
// real Telegram user ids. Ids are 20 characters: 8 encode the creation
// timestamp in milliseconds, 12 are random. Ids created later always sort
// after ids created earlier, and two ids created within the same millisecond
// stay unique because the random tail is incremented instead of redrawn.
package maskid

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"
	"time"
)

const alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

const (
	timestampChars = 8
	randomChars    = 12
	idLength       = timestampChars + randomChars
)

// Generator produces mask uids. The zero value is ready to use.
type Generator struct {
	mu           sync.Mutex
	lastPushTime int64
	lastRand     [randomChars]int
}

var defaultGenerator Generator

// Next returns a mask uid from the package-level generator.
func Next() string {
	return defaultGenerator.Next()
}

// Next returns a new mask uid.
func (g *Generator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now().UnixMilli()
	duplicateTime := now == g.lastPushTime
	g.lastPushTime = now

	buf := make([]byte, 0, idLength)

	var stamp [timestampChars]byte
	for i := timestampChars - 1; i >= 0; i-- {
		stamp[i] = alphabet[now%int64(len(alphabet))]
		now >>= 6
	}
	buf = append(buf, stamp[:]...)

	if !duplicateTime {
		for i := 0; i < randomChars; i++ {
			g.lastRand[i] = randomIndex()
		}
	} else {
		// Same millisecond as the previous id: reuse the random tail
		// incremented by one so ordering and uniqueness both hold.
		i := randomChars - 1
		for ; i >= 0 && g.lastRand[i] == len(alphabet)-1; i-- {
			g.lastRand[i] = 0
		}
		if i >= 0 {
			g.lastRand[i]++
		}
	}
	for i := 0; i < randomChars; i++ {
		buf = append(buf, alphabet[g.lastRand[i]])
	}

	if len(buf) != idLength {
		panic(fmt.Sprintf("maskid: generated id of length %d", len(buf)))
	}
	return string(buf)
}

// randomIndex returns a cryptographically random index into the alphabet.
func randomIndex() int {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(alphabet))))
	if err != nil {
		// Extremely unlikely; fall back to a time-derived index.
		return int(time.Now().UnixNano() % int64(len(alphabet)))
	}
	return int(n.Int64())
}
