// Package util holds small helpers shared by adminkit packages and commands.
package util
