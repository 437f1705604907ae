// Package di wires kci's collaborators with a samber/do container.
//
// A Runtime holds the modules that register providers. Every Invoke builds a
// fresh injector, applies the base modules and any per-call modules, runs the
// handler and shuts the injector down again. The CLI passes the loaded
// configuration, the debug logger and the console notifier as per-call modules
// so that providers depending on them resolve lazily.
package di
