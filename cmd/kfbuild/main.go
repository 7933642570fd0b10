package main

import "github.com/kftools/kfbuild/cmd/kfbuild/internal"

func main() {
	internal.Execute()
}
