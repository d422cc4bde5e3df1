// Package env provides the defaults shared by controller and connector
// environments.
package env

import (
	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
)

// AppID keys the protected machine ID so that it can't be correlated
// with the raw machine ID.
const AppID = "servo.go"

// MachineID retrieves the unique ID identifying the machine. It falls
// back to "default" if the machine has no ID.
func MachineID() string {
	id, err := machineid.ProtectedID(AppID)
	if err != nil {
		glog.Warningf("machine id: %v", err)
		return "default"
	}
	// a short ID is enough to tell the controllers apart.
	if len(id) > 12 {
		id = id[:12]
	}
	return id
}
