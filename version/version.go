package version

import "fmt"

// set via ldflags
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var FullVersion = fmt.Sprintf("%s Build %s Commit %s", Version, Date, Commit)
