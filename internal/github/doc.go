// Package github is a small client for the two GitHub operations the agents
// use: opening an issue and reading a repository README.
//
// Both calls go straight to the REST endpoints with net/http. Issues need a
// token; README reads are anonymous and use raw.githubusercontent.com.
//
// Example usage:
//
//	client := github.NewClient(github.Options{Token: os.Getenv("GITHUB_TOKEN")})
//	res, err := client.CreateIssue(ctx, "owner/repo", "Add retry to sync job", body)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(res.StatusCode, res.HTMLURL)
package github
