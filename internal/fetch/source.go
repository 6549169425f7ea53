package fetch

import "net/url"

// Source is the resolved input of one Engine run: a single URL or an ordered
// batch of them, each optionally paired with query parameters. Build one
// with Single or Batch.
type Source struct {
	urls   []string
	params []url.Values
	single bool
}

// Single describes a run over one URL. Params follows the tri-state
// convention of Request.Params.
func Single(rawURL string, params url.Values) Source {
	return Source{
		urls:   []string{rawURL},
		params: []url.Values{params},
		single: true,
	}
}

// Batch describes a run over several URLs fetched concurrently. params may
// be nil, meaning no parameters anywhere, or must match urls in length with
// positional pairing. A one-element batch is indistinguishable from Single:
// it takes the direct path with its one parameter set unwrapped, and no pool
// is created for it.
func Batch(urls []string, params []url.Values) Source {
	return Source{urls: urls, params: params}
}

// resolve validates the source shape and collapses one-element batches onto
// the single path.
func (s Source) resolve() (Source, error) {
	if len(s.urls) == 0 {
		return s, ErrNoURLs
	}
	if s.params != nil && len(s.params) != len(s.urls) {
		return s, ErrParamsMismatch
	}
	if len(s.urls) == 1 {
		s.single = true
	}
	return s, nil
}

// paramsAt returns the parameters paired with urls[i], or nil when the
// source carries none.
func (s Source) paramsAt(i int) url.Values {
	if s.params == nil {
		return nil
	}
	return s.params[i]
}
