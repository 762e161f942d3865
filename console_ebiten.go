// console_ebiten.go - no-op stand-in for the headless raw-stdin quit key

/*
The windowed build has no stdin quit key to wire up; this stub keeps
main.go free of a build tag of its own. Closing the window does not
stop the CPU thread: a windowed run ends on SIGINT or SIGTERM.
*/

//go:build !headless

package main

type ConsoleQuit struct{}

func NewConsoleQuit(onQuit func()) *ConsoleQuit { return &ConsoleQuit{} }

func (c *ConsoleQuit) Start() {}
func (c *ConsoleQuit) Stop()  {}
