// Package lighttable embeds the search state of the Lucas Cranach archive
// in a Go program: filter stores per artifact kind, the shared result
// lighttable, URL query sync and the favorites collection.
//
// Every session mirrors one browser tab. Filter actions update state,
// mirror it to the session URL query and schedule a debounced request
// against the archive backend.
//
//	client, _ := lighttable.New(ctx,
//	    lighttable.WithArchiveAPI("https://archive.example.org/api/v1", "user", "secret"),
//	    lighttable.WithRedis("localhost:6379", ""),
//	)
//	defer client.Close()
//
//	s, _ := client.NewSession(ctx, "from_year=1510&to_year=max")
//	s.Works().ToggleFilterItemActiveStatus("function", "altar")
//	fmt.Println(s.State().Query)
package lighttable
