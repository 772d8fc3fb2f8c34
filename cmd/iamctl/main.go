package main

import "github.com/stclaird/cloud-iam-self-serve/cmd/iamctl/cmd"

func main() {
	cmd.Execute()
}
