// Package logging builds the logrus logger shared by the console and masks
// credentials before any entry is written.
package logging
