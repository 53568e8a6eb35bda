// Command library-api serves the library catalog REST API.
package main

import "github.com/michalszc/library-api/pkg/cli"

func main() {
	cli.Execute(cli.NewServiceCommand(cli.ServiceCommandOptions{
		Name:        cli.DefaultServiceName,
		Description: "Library catalog REST API: authors, books, book instances and genres",
	}))
}
