package engine

import "errors"

// Stage names as they appear in reports, logs and metric labels.
const (
	StageLoad     = "load"
	StageClassify = "classify"
	StageAssign   = "assign"
	StageRewrite  = "rewrite"
	StageEmit     = "emit"
	StageState    = "state"
)

// Sentinel stage errors. Every structural failure leaving Run is
// wrapped with the sentinel of the stage it happened in, so callers
// can dispatch on errors.Is without parsing messages.
var (
	ErrLoad     = errors.New("load stage failed")
	ErrClassify = errors.New("classify stage failed")
	ErrAssign   = errors.New("assign stage failed")
	ErrRewrite  = errors.New("rewrite stage failed")
	ErrEmit     = errors.New("emit stage failed")
	ErrState    = errors.New("state stage failed")
)
