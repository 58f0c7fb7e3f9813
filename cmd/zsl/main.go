// Command zsl inspects, samples, synthesizes and plots zero-shot learning
// benchmarks.
package main

func main() {
	Execute()
}
