// Package main 启动应用程序
package main

import "github.com/yeisme/studyvault/pkg/cmd"

//	@title			StudyVault API
//	@version		1.0
//	@description	StudyVault 是一个学习资料分享服务，提供用户注册、登录、资料管理、附件上传以及邮件/WhatsApp 下载链接投递等功能。

//	@license.name	MIT
//	@license.url	https://opensource.org/license/mit/

//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization

func main() {
	if err := cmd.Execute(); err != nil {
		panic(err)
	}
}
