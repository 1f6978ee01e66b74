// Command client is a minimal interactive frontend over the client package:
// it reads coordinator address from cs_config.txt and issues one request per
// line read from stdin, in the form "<get|put|update|delete> <key> [value]".
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/plethora-kv/plethora/client"
)

func main() {
	c, err := client.Connect()
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect: %v\n", err)
		os.Exit(1)
	}
	defer c.Close()

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		op, key := fields[0], ""
		if len(fields) > 1 {
			key = fields[1]
		}
		value := ""
		if len(fields) > 2 {
			value = strings.Join(fields[2:], " ")
		}

		switch op {
		case "get":
			v, ok, err := c.Get(key)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				continue
			}
			if !ok {
				fmt.Println("key_error")
				continue
			}
			fmt.Println(v)
		case "put":
			msg, err := c.Put(key, value)
			report(msg, err)
		case "update":
			msg, err := c.Update(key, value)
			report(msg, err)
		case "delete":
			msg, err := c.Delete(key)
			report(msg, err)
		default:
			fmt.Fprintf(os.Stderr, "unknown command %q\n", op)
		}
	}
}

func report(msg string, err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	fmt.Println(msg)
}
