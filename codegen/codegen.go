package codegen

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"

	"github.com/jxskiss/base62"
	"go.uber.org/zap"

	"goshortlink/repository"
)

const (
	DefaultLength = 6
	encodedChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

	// 62^10 still fits an int64; longer codes are drawn in chunks.
	maxChunkChars = 10
)

var (
	encoder = base62.NewEncoding(encodedChars)

	errInvalidLength  = errors.New("invalid length")
	errUnexpectedChar = errors.New("unexpected char")

	validCharSet = func() map[rune]struct{} {
		set := make(map[rune]struct{}, len(encodedChars))
		for _, c := range encodedChars {
			set[c] = struct{}{}
		}
		return set
	}()
)

// Generator draws random short codes and guarantees the returned code is not
// assigned to any stored url at the time of generation. It reads randomness
// from crypto/rand, so a single instance is safe for concurrent use.
type Generator struct {
	urls   repository.UrlStore
	logger *zap.Logger
	length int
}

func New(urls repository.UrlStore, length int, logger *zap.Logger) *Generator {
	if length <= 0 {
		length = DefaultLength
	}
	return &Generator{
		urls:   urls,
		logger: logger,
		length: length,
	}
}

// Generate loops draw-check-redraw until a free code is found. There is no
// retry cap: the 62^length code space dwarfs any realistic table size.
func (g *Generator) Generate(ctx context.Context) (string, error) {
	for {
		code, err := g.candidate()
		if err != nil {
			return "", err
		}
		exists, err := g.urls.CodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
		g.logger.Debug("short code collision, redrawing", zap.String("code", code))
	}
}

// candidate draws a uniformly distributed code: each chunk is a uniform
// integer below 62^k rendered in base62 and left-padded to k digits, a
// bijection onto the k-character strings over the alphabet.
func (g *Generator) candidate() (string, error) {
	code := make([]byte, 0, g.length)
	for remaining := g.length; remaining > 0; {
		k := remaining
		if k > maxChunkChars {
			k = maxChunkChars
		}
		n, err := rand.Int(rand.Reader, chunkSpace(k))
		if err != nil {
			return "", err
		}
		chunk := encoder.FormatUint(n.Uint64())
		for pad := k - len(chunk); pad > 0; pad-- {
			code = append(code, encodedChars[0])
		}
		code = append(code, chunk...)
		remaining -= k
	}
	return string(code), nil
}

func chunkSpace(chars int) *big.Int {
	space := int64(1)
	for i := 0; i < chars; i++ {
		space *= int64(len(encodedChars))
	}
	return big.NewInt(space)
}

// Validate reports whether code could have been produced by this generator.
func (g *Generator) Validate(code string) error {
	if len(code) != g.length {
		return errInvalidLength
	}
	for _, r := range code {
		if _, ok := validCharSet[r]; !ok {
			return errUnexpectedChar
		}
	}
	return nil
}
