// Package glog adapts github.com/golang/glog as an rlog backend. Importing
// it has no side effect; call Install to route rlog output through glog's
// leveled, file-rotated logging.
package glog

import (
	"github.com/golang/glog"

	"github.com/aleksaelezovic/trigo/internal/rlog"
)

// Install replaces the rlog backend with one that delegates to glog.
func Install() {
	rlog.SetLogger(adapter{})
}

type adapter struct{}

func (adapter) Infof(format string, args ...interface{})    { glog.Infof(format, args...) }
func (adapter) Warningf(format string, args ...interface{}) { glog.Warningf(format, args...) }
func (adapter) Errorf(format string, args ...interface{})   { glog.Errorf(format, args...) }
func (adapter) Fatalf(format string, args ...interface{})   { glog.Fatalf(format, args...) }
