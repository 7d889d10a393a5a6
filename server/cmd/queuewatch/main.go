// Command queuewatch polls theme-park queue times, keeps a wait history and
// serves a live dashboard.
package main

func main() {
	Execute()
}
