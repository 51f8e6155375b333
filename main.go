package main

import (
	"fmt"

	"saxgo/parser"
)

func main() {
	nodes, err := parser.Parse(`<?xml version='1.0'?><root><child id='1'>hello</child><!--done--></root>`, false)
	if err != nil {
		fmt.Println(err)
		return
	}
	for _, node := range nodes {
		fmt.Printf("%s %s%s %v\n", node.Type, node.Name, node.Contents, node.Attributes)
	}
}
