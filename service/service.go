// Package service provides the naming convention for built-in services.
//
// Names are composed under the shared "core" prefix:
//
//	service.Internal("friends") -> "core.internal.friends"
//	service.GUI("theme")        -> "core.gui.theme"
//	service.Features("xray")    -> "core.features.xray"
package service

// CorePrefix is the first segment of every built-in service name.
const CorePrefix = "core"

func core(name string) string {
	return CorePrefix + "." + name
}

// Internal returns the service name for internal state.
func Internal(name string) string {
	return core("internal." + name)
}

// GUI returns the service name for user interface settings.
func GUI(name string) string {
	return core("gui." + name)
}

// Features returns the service name for feature settings.
func Features(name string) string {
	return core("features." + name)
}
