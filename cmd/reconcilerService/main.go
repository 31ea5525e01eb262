package main

import (
	"github.com/labstack/gommon/color"

	"github.com/voxnotes/meetgo/internal/app/reconciler"
)

func main() {
	printBanner()
	reconciler.Execute()
}

var (
	version string
)

func printBanner() {
	banner := `
                         __
   ____ ___  ___  ___  / /_
  / __ ` + "`" + `__ \/ _ \/ _ \/ __/
 / / / / / /  __/  __/ /_
/_/ /_/ /_/\___/\___/\__/
                                    _ __
   ________  _________  ____  _____(_) /__
  / ___/ _ \/ ___/ __ \/ __ \/ ___/ / / _ \
 / /  /  __/ /__/ /_/ / / / / /__/ / /  __/
/_/   \___/\___/\____/_/ /_/\___/_/_/\___/ v: %s
%s
________________________________________________________

`
	cl := color.New()
	cl.Printf(banner, cl.Red(version), cl.Green("github.com/voxnotes/meetgo"))
}
