// Package simhost provides an in-memory implementation of the host interfaces.
//
// The simulated host journals every call, can be told to fail a named
// operation with FailOn, and completes a started render after a configurable
// number of status polls. Tests use it as the fake editing application, and
// `dailies host simulate` serves it over the bridge protocol for rehearsals.
package simhost
