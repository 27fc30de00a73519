package booru

import (
	"slices"

	"github.com/muratoffalex/shuller/internal/logger"
)

const (
	MaxLimit     = 1000
	DefaultLimit = 1
	DefaultPage  = 1

	routePage    = "dapi"
	subjectPost  = "post"
	queryIndex   = "index"
	jsonResponse = true
)

// Params describes one post query. Every setter returns an updated copy, the
// receiver is never modified, so a Params value can be reused as a template.
type Params struct {
	route   string
	subject string
	query   string
	json    bool

	positive []string
	negative []string
	limit    int
	page     int
	id       uint64
	hasID    bool

	logger logger.Logger
	rng    RandomSource
}

func NewParams() Params {
	return Params{
		route:   routePage,
		subject: subjectPost,
		query:   queryIndex,
		json:    jsonResponse,
		limit:   DefaultLimit,
		page:    DefaultPage,
		logger:  logger.NewNopLogger(),
		rng:     DefaultRandom,
	}
}

// WithLogger sets where limit warnings go.
func (p Params) WithLogger(l logger.Logger) Params {
	if l == nil {
		l = logger.NewNopLogger()
	}
	p.logger = l
	return p
}

func (p Params) WithRandomSource(rng RandomSource) Params {
	p.rng = orDefault(rng)
	return p
}

// PositiveTags appends to the tags a post must have.
func (p Params) PositiveTags(tags ...string) Params {
	p.positive = slices.Concat(p.positive, tags)
	return p
}

// NegativeTags appends to the tags a post must not have. The "-" prefix is
// added when encoding.
func (p Params) NegativeTags(tags ...string) Params {
	p.negative = slices.Concat(p.negative, tags)
	return p
}

// Limit sets the page size. Values outside [0, MaxLimit] are clamped with a warning.
func (p Params) Limit(limit int) Params {
	switch {
	case limit > MaxLimit:
		p.log().WithFields(logger.Fields{
			"requested": limit,
			"max":       MaxLimit,
		}).Warn("Limit is greater than expected, using max")
		p.limit = MaxLimit
	case limit < 0:
		p.log().WithFields(logger.Fields{
			"requested": limit,
		}).Warn("Limit is negative, using 0")
		p.limit = 0
	default:
		p.limit = limit
	}
	return p
}

// Page sets the "pid" cursor. The API decides what it means.
func (p Params) Page(page int) Params {
	p.page = page
	return p
}

// ID adds a direct post lookup. The tag parameters are still sent; the API
// gives the id priority.
func (p Params) ID(id uint64) Params {
	p.id = id
	p.hasID = true
	return p
}

// RandomID calls ID with a uniform value in [0, maxBound). It panics if maxBound is 0.
func (p Params) RandomID(maxBound uint64) Params {
	if maxBound == 0 {
		panic("booru: RandomID bound must be positive")
	}
	return p.ID(orDefault(p.rng).Uint64N(maxBound))
}

func (p Params) GetPositiveTags() []string {
	return slices.Clone(p.positive)
}

func (p Params) GetNegativeTags() []string {
	return slices.Clone(p.negative)
}

func (p Params) GetLimit() int {
	return p.limit
}

func (p Params) GetPage() int {
	return p.page
}

func (p Params) GetID() (uint64, bool) {
	return p.id, p.hasID
}

func (p Params) log() logger.Logger {
	if p.logger == nil {
		return logger.NewNopLogger()
	}
	return p.logger
}

// Tags returns the encoded "tags" query value.
func (p Params) Tags() string {
	return EncodeTags(p.positive, p.negative)
}
