package contrast

import "sort"

// Piece maps a range of a derived stream back to the range of raw text it
// was produced from.
type Piece struct {
	StreamStart int
	StreamEnd   int
	RawStart    int
	RawEnd      int
}

// PieceTable records how a transformed stream was assembled from raw text so
// that offsets found in the stream can be mapped back to raw offsets. Pieces
// must be added in stream order with no overlap.
type PieceTable struct {
	pieces []Piece
}

// Add appends a piece. Empty stream ranges are ignored.
func (pt *PieceTable) Add(streamStart, streamEnd, rawStart, rawEnd int) {
	if streamEnd <= streamStart {
		return
	}
	pt.pieces = append(pt.pieces, Piece{
		StreamStart: streamStart,
		StreamEnd:   streamEnd,
		RawStart:    rawStart,
		RawEnd:      rawEnd,
	})
}

// Len returns the number of pieces.
func (pt *PieceTable) Len() int {
	return len(pt.pieces)
}

// Pieces returns the recorded pieces in stream order.
func (pt *PieceTable) Pieces() []Piece {
	return pt.pieces
}

// Map converts the stream range [start, end) to the raw range spanning the
// minimum and maximum raw bounds of every piece it overlaps.
func (pt *PieceTable) Map(start, end int) (rawStart, rawEnd int, ok bool) {
	if end <= start {
		end = start + 1
	}
	i := sort.Search(len(pt.pieces), func(i int) bool {
		return pt.pieces[i].StreamEnd > start
	})

	for ; i < len(pt.pieces) && pt.pieces[i].StreamStart < end; i++ {
		p := pt.pieces[i]
		if !ok {
			rawStart, rawEnd, ok = p.RawStart, p.RawEnd, true
			continue
		}
		rawStart = min(rawStart, p.RawStart)
		rawEnd = max(rawEnd, p.RawEnd)
	}
	return rawStart, rawEnd, ok
}
