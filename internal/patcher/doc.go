// Package patcher adds an element to a list inside a shared document only
// when an equal element is not already there.
//
// The document is read through an Applier immediately before each write and
// the write is a JSON merge patch that replaces only the target list, so
// other fields of the document are left alone. There is no
// compare-and-swap: a concurrent writer between the read and the write can
// lose its change to the list.
package patcher
