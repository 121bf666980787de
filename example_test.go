package errtrack_test

import (
	"context"
	"fmt"
	"strings"

	errtrack "github.com/xgx-io/xgx-errtrack"
)

// summary prints the header, params and root cause lines of a report. File
// paths and line numbers depend on the checkout and are left out.
func summary(report string) {
	for _, line := range strings.Split(report, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "Error in function") ||
			strings.HasPrefix(line, "Function name:") ||
			strings.HasPrefix(line, "-->ROOT CAUSE:") {
			fmt.Println(line)
		}
	}
}

func divide(_ context.Context, a, b int) (int, error) {
	return a / b, nil
}

func ExampleWrap2() {
	tr := errtrack.New(errtrack.WithSinks(summary))
	div := errtrack.Wrap2(tr, divide)

	v, err := div(context.Background(), 1, 0)
	fmt.Println(v, err)
	// Output:
	// Error in function xgx-errtrack_test.divide
	// Function name: xgx-errtrack_test.divide, params: {arg0=1, arg1=0}
	// -->ROOT CAUSE: panic: runtime error: integer divide by zero
	// 0 <nil>
}

func ExampleTracker_Run() {
	tr := errtrack.New(errtrack.WithReraise(true), errtrack.WithSinks(summary))

	err := tr.Run(context.Background(), "load", func(ctx context.Context) error {
		errtrack.Locals(ctx, "user", "ada")
		return errtrack.NewError("no such user")
	})
	fmt.Println(err)
	// Output:
	// Error in function load
	// Function name: xgx-errtrack_test.ExampleTracker_Run.func1, params: {user=ada}
	// -->ROOT CAUSE: error: no such user
	// no such user
}
