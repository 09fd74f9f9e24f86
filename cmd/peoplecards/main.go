package main

import (
	"peoplecards/cmd/peoplecards/commands"
	"peoplecards/lib/util/serviceutil"
)

func main() {
	commands.ExecuteContext(serviceutil.SignalContext())
}
