package features

import (
	"math"

	"github.com/RyanBlaney/sonido-voice/algorithms/common"
)

// JitterRecord is the nested jitter group
type JitterRecord struct {
	Local *float64 `json:"local" yaml:"local"`
	RAP   *float64 `json:"rap" yaml:"rap"`
	PPQ5  *float64 `json:"ppq5" yaml:"ppq5"`
	DDP   *float64 `json:"ddp" yaml:"ddp"`
}

// ShimmerRecord is the nested shimmer group
type ShimmerRecord struct {
	Local *float64 `json:"local" yaml:"local"`
	APQ3  *float64 `json:"apq3" yaml:"apq3"`
	APQ5  *float64 `json:"apq5" yaml:"apq5"`
	APQ11 *float64 `json:"apq11" yaml:"apq11"`
	DDA   *float64 `json:"dda" yaml:"dda"`
}

// NestedRecord groups jitter and shimmer variants under their own keys.
// A nil field is an unavailable metric.
type NestedRecord struct {
	Jitter         JitterRecord  `json:"jitter" yaml:"jitter"`
	Shimmer        ShimmerRecord `json:"shimmer" yaml:"shimmer"`
	HNR            *float64      `json:"hnr" yaml:"hnr"`
	NHR            *float64      `json:"nhr" yaml:"nhr"`
	F0             *float64      `json:"f0" yaml:"f0"`
	MaxF0          *float64      `json:"max_f0" yaml:"max_f0"`
	MinF0          *float64      `json:"min_f0" yaml:"min_f0"`
	RangeSemitones *float64      `json:"range_st" yaml:"range_st"`
	CPPS           *float64      `json:"cpps" yaml:"cpps"`
	LHRatioMean    *float64      `json:"lh_ratio_mean" yaml:"lh_ratio_mean"`
	LHRatioSD      *float64      `json:"lh_ratio_sd" yaml:"lh_ratio_sd"`
	CSID           *float64      `json:"csid" yaml:"csid"`
}

// FlatRecord carries every metric at the top level with group prefixes
type FlatRecord struct {
	JitterLocal    *float64 `json:"jitter_local" yaml:"jitter_local"`
	JitterRAP      *float64 `json:"jitter_rap" yaml:"jitter_rap"`
	JitterPPQ5     *float64 `json:"jitter_ppq5" yaml:"jitter_ppq5"`
	JitterDDP      *float64 `json:"jitter_ddp" yaml:"jitter_ddp"`
	ShimmerLocal   *float64 `json:"shimmer_local" yaml:"shimmer_local"`
	ShimmerAPQ3    *float64 `json:"shimmer_apq3" yaml:"shimmer_apq3"`
	ShimmerAPQ5    *float64 `json:"shimmer_apq5" yaml:"shimmer_apq5"`
	ShimmerAPQ11   *float64 `json:"shimmer_apq11" yaml:"shimmer_apq11"`
	ShimmerDDA     *float64 `json:"shimmer_dda" yaml:"shimmer_dda"`
	HNR            *float64 `json:"hnr" yaml:"hnr"`
	NHR            *float64 `json:"nhr" yaml:"nhr"`
	F0             *float64 `json:"f0" yaml:"f0"`
	MaxF0          *float64 `json:"max_f0" yaml:"max_f0"`
	MinF0          *float64 `json:"min_f0" yaml:"min_f0"`
	RangeSemitones *float64 `json:"range_st" yaml:"range_st"`
	CPPS           *float64 `json:"cpps" yaml:"cpps"`
	LHRatioMean    *float64 `json:"lh_ratio_mean" yaml:"lh_ratio_mean"`
	LHRatioSD      *float64 `json:"lh_ratio_sd" yaml:"lh_ratio_sd"`
	CSID           *float64 `json:"csid" yaml:"csid"`
}

// field binds one metric to its place in every representation
type field struct {
	key      string // flat key
	fallback bool   // defined value even without input, excluded from availability
	value    func(*FeatureSet) *float64
	nested   func(*NestedRecord) **float64
	flat     func(*FlatRecord) **float64
}

var fields = []field{
	{"jitter_local", false,
		func(fs *FeatureSet) *float64 { return &fs.Jitter.Local },
		func(r *NestedRecord) **float64 { return &r.Jitter.Local },
		func(r *FlatRecord) **float64 { return &r.JitterLocal }},
	{"jitter_rap", false,
		func(fs *FeatureSet) *float64 { return &fs.Jitter.RAP },
		func(r *NestedRecord) **float64 { return &r.Jitter.RAP },
		func(r *FlatRecord) **float64 { return &r.JitterRAP }},
	{"jitter_ppq5", false,
		func(fs *FeatureSet) *float64 { return &fs.Jitter.PPQ5 },
		func(r *NestedRecord) **float64 { return &r.Jitter.PPQ5 },
		func(r *FlatRecord) **float64 { return &r.JitterPPQ5 }},
	{"jitter_ddp", false,
		func(fs *FeatureSet) *float64 { return &fs.Jitter.DDP },
		func(r *NestedRecord) **float64 { return &r.Jitter.DDP },
		func(r *FlatRecord) **float64 { return &r.JitterDDP }},
	{"shimmer_local", false,
		func(fs *FeatureSet) *float64 { return &fs.Shimmer.Local },
		func(r *NestedRecord) **float64 { return &r.Shimmer.Local },
		func(r *FlatRecord) **float64 { return &r.ShimmerLocal }},
	{"shimmer_apq3", false,
		func(fs *FeatureSet) *float64 { return &fs.Shimmer.APQ3 },
		func(r *NestedRecord) **float64 { return &r.Shimmer.APQ3 },
		func(r *FlatRecord) **float64 { return &r.ShimmerAPQ3 }},
	{"shimmer_apq5", false,
		func(fs *FeatureSet) *float64 { return &fs.Shimmer.APQ5 },
		func(r *NestedRecord) **float64 { return &r.Shimmer.APQ5 },
		func(r *FlatRecord) **float64 { return &r.ShimmerAPQ5 }},
	{"shimmer_apq11", false,
		func(fs *FeatureSet) *float64 { return &fs.Shimmer.APQ11 },
		func(r *NestedRecord) **float64 { return &r.Shimmer.APQ11 },
		func(r *FlatRecord) **float64 { return &r.ShimmerAPQ11 }},
	{"shimmer_dda", false,
		func(fs *FeatureSet) *float64 { return &fs.Shimmer.DDA },
		func(r *NestedRecord) **float64 { return &r.Shimmer.DDA },
		func(r *FlatRecord) **float64 { return &r.ShimmerDDA }},
	{"hnr", false,
		func(fs *FeatureSet) *float64 { return &fs.HNR },
		func(r *NestedRecord) **float64 { return &r.HNR },
		func(r *FlatRecord) **float64 { return &r.HNR }},
	{"nhr", false,
		func(fs *FeatureSet) *float64 { return &fs.NHR },
		func(r *NestedRecord) **float64 { return &r.NHR },
		func(r *FlatRecord) **float64 { return &r.NHR }},
	{"f0", false,
		func(fs *FeatureSet) *float64 { return &fs.F0.Mean },
		func(r *NestedRecord) **float64 { return &r.F0 },
		func(r *FlatRecord) **float64 { return &r.F0 }},
	{"max_f0", false,
		func(fs *FeatureSet) *float64 { return &fs.F0.Max },
		func(r *NestedRecord) **float64 { return &r.MaxF0 },
		func(r *FlatRecord) **float64 { return &r.MaxF0 }},
	{"min_f0", false,
		func(fs *FeatureSet) *float64 { return &fs.F0.Min },
		func(r *NestedRecord) **float64 { return &r.MinF0 },
		func(r *FlatRecord) **float64 { return &r.MinF0 }},
	{"range_st", true,
		func(fs *FeatureSet) *float64 { return &fs.F0.RangeSemitones },
		func(r *NestedRecord) **float64 { return &r.RangeSemitones },
		func(r *FlatRecord) **float64 { return &r.RangeSemitones }},
	{"cpps", false,
		func(fs *FeatureSet) *float64 { return &fs.CPPS },
		func(r *NestedRecord) **float64 { return &r.CPPS },
		func(r *FlatRecord) **float64 { return &r.CPPS }},
	{"lh_ratio_mean", false,
		func(fs *FeatureSet) *float64 { return &fs.LHRatio.Mean },
		func(r *NestedRecord) **float64 { return &r.LHRatioMean },
		func(r *FlatRecord) **float64 { return &r.LHRatioMean }},
	{"lh_ratio_sd", true,
		func(fs *FeatureSet) *float64 { return &fs.LHRatio.SD },
		func(r *NestedRecord) **float64 { return &r.LHRatioSD },
		func(r *FlatRecord) **float64 { return &r.LHRatioSD }},
	{"csid", false,
		func(fs *FeatureSet) *float64 { return &fs.CSID },
		func(r *NestedRecord) **float64 { return &r.CSID },
		func(r *FlatRecord) **float64 { return &r.CSID }},
}

var fieldIndex = func() map[string]field {
	index := make(map[string]field, len(fields))
	for _, f := range fields {
		index[f.key] = f
	}
	return index
}()

// FieldKeys returns every flat metric key in record order
func FieldKeys() []string {
	keys := make([]string, len(fields))
	for i, f := range fields {
		keys[i] = f.key
	}
	return keys
}

func toPointer(v float64) *float64 {
	if !common.IsFinite(v) {
		return nil
	}
	return &v
}

func fromPointer(p *float64) float64 {
	if p == nil {
		return math.NaN()
	}
	return *p
}

// ToNested converts a feature set to its nested boundary record
func ToNested(fs FeatureSet) NestedRecord {
	var rec NestedRecord
	for _, f := range fields {
		*f.nested(&rec) = toPointer(*f.value(&fs))
	}
	return rec
}

// ToFlat converts a feature set to its flat boundary record
func ToFlat(fs FeatureSet) FlatRecord {
	var rec FlatRecord
	for _, f := range fields {
		*f.flat(&rec) = toPointer(*f.value(&fs))
	}
	return rec
}

// FromNested reads a nested record back into a feature set, nil becoming NaN
func FromNested(rec NestedRecord) FeatureSet {
	var fs FeatureSet
	for _, f := range fields {
		*f.value(&fs) = fromPointer(*f.nested(&rec))
	}
	return fs
}

// FromFlat reads a flat record back into a feature set, nil becoming NaN
func FromFlat(rec FlatRecord) FeatureSet {
	var fs FeatureSet
	for _, f := range fields {
		*f.value(&fs) = fromPointer(*f.flat(&rec))
	}
	return fs
}

// NestedToFlat moves every metric from the grouped to the prefixed layout
func NestedToFlat(rec NestedRecord) FlatRecord {
	return ToFlat(FromNested(rec))
}

// FlatToNested moves every metric from the prefixed to the grouped layout
func FlatToNested(rec FlatRecord) NestedRecord {
	return ToNested(FromFlat(rec))
}
