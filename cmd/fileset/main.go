package main

import "fileset/internal/fileset"

func main() {
	fileset.Main()
}
