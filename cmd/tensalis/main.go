// Command tensalis verifies AI-generated text against reference documents
// using the Tensalis hallucination detection API.
package main

func main() {
	Execute()
}
