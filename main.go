package main

import "github.com/joshdurbin/strava-season-stats/internal/cmd"

func main() {
	cmd.Execute()
}
