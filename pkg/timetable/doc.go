// Package timetable holds the pure timetable slot model: the daily period
// catalog, the weekday enumeration, the slot id codec and the grid records
// built on top of them. Nothing here performs I/O or keeps state.
package timetable
