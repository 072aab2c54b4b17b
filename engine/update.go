package engine

// Update is a fully parsed record handed from a producer goroutine to the
// render loop. Only the types in this file implement it.
type Update interface {
	isUpdate()
}

// MatrixUpdate replaces the whole matrix. Length must equal the configured
// matrix length.
type MatrixUpdate struct {
	Matrix []uint8
}

// TempoUpdate carries a raw tempo value as sent by the feed; the engine
// scales it by TempoScale.
type TempoUpdate struct {
	Value float64
}

// TrackCountUpdate sets the number of active tracks.
type TrackCountUpdate struct {
	Value int
}

func (MatrixUpdate) isUpdate()     {}
func (TempoUpdate) isUpdate()      {}
func (TrackCountUpdate) isUpdate() {}
