package vectorized

import (
	"github.com/RoaringBitmap/roaring/v2"

	"tilequery/common"
)

// ReduceToBitmap folds the truth values into a per-row selection bitmap,
// clearing every row that is not definitely true. False and null rows
// both deselect; a row deselected once stays deselected no matter what
// later conjuncts say. Reduction is idempotent and conjuncts commute.
func (r *EvalResult) ReduceToBitmap(bm *roaring.Bitmap) {
	before := bm.GetCardinality()

	if r.Uniform {
		if r.Scalar != TriTrue {
			bm.RemoveRange(0, uint64(r.NumRows))
		}
	} else {
		for i := 0; i < r.NumRows; i++ {
			if r.At(i) != TriTrue {
				bm.Remove(uint32(i))
			}
		}
	}

	common.GetTracer().Debug(common.TraceComponentFilter, "Reduced truth values into selection bitmap", common.TraceContext(
		"rows", r.NumRows,
		"before", before,
		"after", bm.GetCardinality(),
	))
}

// SelectionBitmap evaluates the reduction against a fresh all-selected
// bitmap and returns it.
func (r *EvalResult) SelectionBitmap() *roaring.Bitmap {
	bm := roaring.New()
	bm.AddRange(0, uint64(r.NumRows))
	r.ReduceToBitmap(bm)
	return bm
}
