// Command like4me likes and comments on the recent posts of an account's
// blog neighbors.
package main

import "github.com/ibeckermayer/like4me/internal/cli"

func main() {
	cli.Execute()
}
