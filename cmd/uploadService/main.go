package main

import (
	"github.com/labstack/gommon/color"

	"github.com/voxnotes/meetgo/internal/app/upload"
)

func main() {
	printBanner()
	upload.Execute()
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
                __                __
  __  ______   / /___  ____ _____/ /
 / / / / __ \ / / __ \/ __ ` + "`" + `/ __  /
/ /_/ / /_/ // / /_/ / /_/ / /_/ /
\__,_/ .___//_/\____/\__,_/\__,_/ v: %s
    /_/
%s
________________________________________________________

`
	cl := color.New()
	cl.Printf(banner, cl.Red(version), cl.Green("github.com/voxnotes/meetgo"))
}
