// Package deps checks for the external executables mashup shells out to and
// resolves them into a Tools value passed to the pipeline constructors.
package deps
