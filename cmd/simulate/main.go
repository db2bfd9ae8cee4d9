// Command simulate compares adaptive event selection with uniform sampling.
package main

func main() {
	Execute()
}
