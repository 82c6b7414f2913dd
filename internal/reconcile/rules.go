package reconcile

import (
	"strconv"

	"github.com/lepinkainen/shelfsync/internal/config"
	"github.com/lepinkainen/shelfsync/internal/convert"
	"github.com/lepinkainen/shelfsync/internal/hardcover"
)

// env is what a rule needs to know about the column it compares against.
type env struct {
	cfg    config.Sync
	column string
	meta   *convert.ColumnMeta
}

// delta is one detected difference, before it is dressed up as a change.
type delta struct {
	old   string
	new   string
	value any
	raw   bool
}

// fieldRule is the type-erased form of rule[T] kept in the dispatch tables.
type fieldRule interface {
	gated(cfg config.Sync) bool
	fromRemote(e *env, ub *hardcover.UserBook, read func() (any, error)) (delta, bool, error)
	toRemote(e *env, ub *hardcover.UserBook, cur any) (delta, bool, error)
}

// rule compares one field. remote and local extract the typed value of
// each side, same decides equality, format renders a value for display and
// value produces what gets written to the target side.
type rule[T any] struct {
	gate   func(cfg config.Sync) bool
	remote func(e *env, ub *hardcover.UserBook) (T, bool)
	local  func(e *env, v any) (T, bool, error)
	same   func(a, b T) bool
	format func(v T) string
	absent string
	value  func(v T) any
}

func (r rule[T]) gated(cfg config.Sync) bool {
	return r.gate == nil || r.gate(cfg)
}

func (r rule[T]) absentDisplay() string {
	if r.absent == "" {
		return convert.EmptyValue
	}
	return r.absent
}

// fromRemote: the remote side is the source and must be present. The local
// value is only read when there is something to compare.
func (r rule[T]) fromRemote(e *env, ub *hardcover.UserBook, read func() (any, error)) (delta, bool, error) {
	src, ok := r.remote(e, ub)
	if !ok {
		return delta{}, false, nil
	}
	cur, err := read()
	if err != nil {
		return delta{}, false, err
	}
	dst, dstOK, err := r.local(e, cur)
	if err != nil {
		return delta{}, false, err
	}
	if dstOK && r.same(src, dst) {
		return delta{}, false, nil
	}

	d := delta{old: r.absentDisplay(), new: r.format(src)}
	if dstOK {
		d.old = r.format(dst)
	}
	if r.value != nil {
		d.value = r.value(src)
		d.raw = true
	}
	return d, true, nil
}

// toRemote: the local side is the source and must be present. A missing
// library entry renders as NotInLibrary.
func (r rule[T]) toRemote(e *env, ub *hardcover.UserBook, cur any) (delta, bool, error) {
	src, ok, err := r.local(e, cur)
	if err != nil || !ok {
		return delta{}, false, err
	}

	d := delta{old: convert.NotInLibrary, new: r.format(src), value: r.value(src), raw: true}
	if ub == nil {
		return d, true, nil
	}

	dst, dstOK := r.remote(e, ub)
	if dstOK && r.same(src, dst) {
		return delta{}, false, nil
	}
	d.old = r.absentDisplay()
	if dstOK {
		d.old = r.format(dst)
	}
	return d, true, nil
}

func sameValue[T comparable](a, b T) bool { return a == b }

func asIs(s string) string { return s }

func nonEmpty(s string) (string, bool) { return s, s != "" }

func localString(_ *env, v any) (string, bool, error) {
	s, ok := nonEmpty(convert.FormatValue(v))
	return s, ok, nil
}

func syncRating(cfg config.Sync) bool   { return cfg.SyncRating }
func syncProgress(cfg config.Sync) bool { return cfg.SyncProgress }
func syncDates(cfg config.Sync) bool    { return cfg.SyncDates }
func syncReview(cfg config.Sync) bool   { return cfg.SyncReview }

type statusValue struct {
	id    hardcover.StatusID
	label string
}

type ratingValue struct {
	raw   string
	stars *float64
}

func formatStars(v ratingValue) string { return convert.FormatStars(v.stars) }

func remoteDate(ts *string) (string, bool) {
	if ts == nil {
		return "", false
	}
	return convert.ExtractDate(*ts)
}

func localDate(_ *env, v any) (string, bool, error) {
	d, ok := convert.ExtractDateValue(v)
	return d, ok, nil
}

func remotePercent(_ *env, ub *hardcover.UserBook) (float64, bool) {
	pct := ub.CurrentProgressPercent()
	if pct == nil {
		return 0, false
	}
	return convert.RoundTenth(*pct), true
}

func localPercent(_ *env, v any) (float64, bool, error) {
	if v == nil || v == "" {
		return 0, false, nil
	}
	f, err := convert.ToFloat(v)
	if err != nil {
		return 0, false, err
	}
	return convert.RoundTenth(f), true, nil
}

func remoteReview(_ *env, ub *hardcover.UserBook) (string, bool) {
	if ub.Review == nil {
		return "", false
	}
	return nonEmpty(*ub.Review)
}

// fromRules compare remote values against local ones, in remote-to-local
// direction.
var fromRules = map[Field]fieldRule{
	FieldStatus: rule[string]{
		remote: func(e *env, ub *hardcover.UserBook) (string, bool) {
			if ub.StatusID == nil {
				return "", false
			}
			return convert.StatusFromRemote(*ub.StatusID, e.cfg.StatusMappings)
		},
		local:  localString,
		same:   sameValue[string],
		format: asIs,
	},
	FieldRating: rule[ratingValue]{
		gate: syncRating,
		remote: func(e *env, ub *hardcover.UserBook) (ratingValue, bool) {
			if ub.Rating == nil {
				return ratingValue{}, false
			}
			r := *ub.Rating
			return ratingValue{raw: convert.RatingToLocal(r, e.column, e.meta), stars: &r}, true
		},
		local: func(e *env, v any) (ratingValue, bool, error) {
			raw := convert.FormatValue(v)
			if raw == "" {
				return ratingValue{}, false, nil
			}
			// display only: an unreadable value shows as no rating
			stars, _ := convert.RatingFromLocal(v, e.column, e.meta)
			return ratingValue{raw: raw, stars: stars}, true, nil
		},
		same:   func(a, b ratingValue) bool { return a.raw == b.raw },
		format: formatStars,
		absent: convert.NoRating,
		value:  func(v ratingValue) any { return v.raw },
	},
	FieldProgress: rule[string]{
		gate: syncProgress,
		remote: func(_ *env, ub *hardcover.UserBook) (string, bool) {
			pages := ub.CurrentProgressPages()
			if pages == nil {
				return "", false
			}
			return strconv.Itoa(*pages), true
		},
		local:  localString,
		same:   sameValue[string],
		format: asIs,
	},
	FieldProgressPercent: rule[float64]{
		gate:   syncProgress,
		remote: remotePercent,
		local:  localPercent,
		same:   sameValue[float64],
		format: convert.FormatPercent,
		value:  func(v float64) any { return convert.FormatValue(v) },
	},
	FieldDateStarted: rule[string]{
		gate: syncDates,
		remote: func(_ *env, ub *hardcover.UserBook) (string, bool) {
			return remoteDate(ub.LatestStartedAt())
		},
		local:  localDate,
		same:   sameValue[string],
		format: asIs,
	},
	FieldDateRead: rule[string]{
		gate: syncDates,
		remote: func(_ *env, ub *hardcover.UserBook) (string, bool) {
			return remoteDate(ub.LatestFinishedAt())
		},
		local:  localDate,
		same:   sameValue[string],
		format: asIs,
	},
	// is_read is derived from the status, so no toggle gates it.
	FieldIsRead: rule[bool]{
		remote: func(_ *env, ub *hardcover.UserBook) (bool, bool) {
			return ub.Status() == hardcover.StatusRead, true
		},
		local: func(_ *env, v any) (bool, bool, error) {
			return convert.ToBool(v), true, nil
		},
		same:   sameValue[bool],
		format: convert.YesNo,
		value: func(v bool) any {
			if v {
				return "Yes"
			}
			return ""
		},
	},
	FieldReview: rule[string]{
		gate:   syncReview,
		remote: remoteReview,
		local:  localString,
		same:   sameValue[string],
		format: convert.TruncateReview,
		value:  func(v string) any { return v },
	},
}

// toRules compare local values against remote ones, in local-to-remote
// direction. is_read has no remote counterpart.
var toRules = map[Field]fieldRule{
	FieldStatus: rule[statusValue]{
		remote: func(e *env, ub *hardcover.UserBook) (statusValue, bool) {
			if ub.StatusID == nil {
				return statusValue{}, false
			}
			label, ok := convert.StatusFromRemote(*ub.StatusID, e.cfg.StatusMappings)
			if !ok {
				label = convert.EmptyValue
			}
			return statusValue{id: *ub.StatusID, label: label}, true
		},
		local: func(e *env, v any) (statusValue, bool, error) {
			label := convert.FormatValue(v)
			id, ok := convert.StatusToRemote(label, e.cfg.StatusMappings)
			return statusValue{id: id, label: label}, ok, nil
		},
		same:   func(a, b statusValue) bool { return a.id == b.id },
		format: func(v statusValue) string { return v.label },
		value:  func(v statusValue) any { return v.id },
	},
	FieldRating: rule[ratingValue]{
		gate: syncRating,
		remote: func(_ *env, ub *hardcover.UserBook) (ratingValue, bool) {
			if ub.Rating == nil {
				return ratingValue{}, false
			}
			r := *ub.Rating
			return ratingValue{stars: &r}, true
		},
		local: func(e *env, v any) (ratingValue, bool, error) {
			stars, err := convert.RatingFromLocal(v, e.column, e.meta)
			if err != nil || stars == nil {
				return ratingValue{}, false, err
			}
			return ratingValue{raw: convert.FormatValue(v), stars: stars}, true, nil
		},
		same:   func(a, b ratingValue) bool { return *a.stars == *b.stars },
		format: formatStars,
		absent: convert.NoRating,
		value:  func(v ratingValue) any { return *v.stars },
	},
	FieldProgress: rule[int]{
		gate: syncProgress,
		remote: func(_ *env, ub *hardcover.UserBook) (int, bool) {
			pages := ub.CurrentProgressPages()
			if pages == nil {
				return 0, false
			}
			return *pages, true
		},
		local: func(_ *env, v any) (int, bool, error) {
			coerced, err := convert.Coerce(v, convert.DatatypeInt)
			if err != nil || coerced == nil {
				return 0, false, err
			}
			return coerced.(int), true, nil
		},
		same:   sameValue[int],
		format: strconv.Itoa,
		value:  func(v int) any { return v },
	},
	FieldProgressPercent: rule[float64]{
		gate:   syncProgress,
		remote: remotePercent,
		local:  localPercent,
		same:   sameValue[float64],
		format: convert.FormatPercent,
		value:  func(v float64) any { return v / 100 },
	},
	FieldDateStarted: rule[string]{
		gate: syncDates,
		remote: func(_ *env, ub *hardcover.UserBook) (string, bool) {
			return remoteDate(ub.LatestStartedAt())
		},
		local:  localDate,
		same:   sameValue[string],
		format: asIs,
		value:  func(v string) any { return v },
	},
	FieldDateRead: rule[string]{
		gate: syncDates,
		remote: func(_ *env, ub *hardcover.UserBook) (string, bool) {
			return remoteDate(ub.LatestFinishedAt())
		},
		local:  localDate,
		same:   sameValue[string],
		format: asIs,
		value:  func(v string) any { return v },
	},
	FieldReview: rule[string]{
		gate:   syncReview,
		remote: remoteReview,
		local:  localString,
		same:   sameValue[string],
		format: convert.TruncateReview,
		value:  func(v string) any { return v },
	},
}
