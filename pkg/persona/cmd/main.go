package main

import (
	"context"
	"log"
	"net/url"
	"os"

	"github.com/k0kubun/pp"
	"resty.dev/v3"

	"whatsgood/pkg/persona"
)

func main() {
	client := persona.NewClient(os.Getenv("PEOPLE_API_URL"), &persona.ClientConfig{
		TransportSettings: persona.DefaultConfig.TransportSettings,

		ResponseMiddlewares: []resty.ResponseMiddleware{func(client *resty.Client, response *resty.Response) error {
			reqURL, err := url.Parse(response.Request.URL)
			if err != nil {
				return err
			}

			log.Printf("%s %s: %s [%s]", response.Request.Method, reqURL.Path, response.Status(), response.Duration())
			return nil
		}},
	})
	defer client.Close()

	members, err := client.GetMembers(context.Background(), os.Args[1:]...)
	if err != nil {
		panic(err)
	}

	pp.Printf("%+v", members)
}
